// Package access implements the gate every protected dataset operation
// passes through.
//
// A Policy answers one question: may this principal perform this operation
// on this dataset. The Gate turns a refusal into an AccessDeniedError.
// Policies compose, so a service allow-list and a server-wide rule can both
// apply to the same call.
package access

import (
	"github.com/roach88/assay/internal/errs"
)

// Operation is a protected operation kind.
type Operation string

// The protected operations. Values match the names used in policies.
const (
	OpDrop       Operation = "drop"
	OpClear      Operation = "clear"
	OpCreate     Operation = "create"
	OpInsertData Operation = "insertData"
	OpDeleteData Operation = "deleteData"
	OpUpdate     Operation = "update"
	OpQuery      Operation = "query"
)

// Operations lists every protected operation kind.
func Operations() []Operation {
	return []Operation{OpDrop, OpClear, OpCreate, OpInsertData, OpDeleteData, OpUpdate, OpQuery}
}

// Policy decides whether principal may perform op on dataset.
// Implementations must not block.
type Policy interface {
	Allow(op Operation, dataset, principal string) bool
}

// PolicyFunc adapts a function to Policy.
type PolicyFunc func(op Operation, dataset, principal string) bool

// Allow calls f.
func (f PolicyFunc) Allow(op Operation, dataset, principal string) bool {
	return f(op, dataset, principal)
}

// AllowAll permits everything.
var AllowAll Policy = PolicyFunc(func(Operation, string, string) bool { return true })

// AllowList permits only the named principals, for every operation.
type AllowList struct {
	users map[string]struct{}
	order []string
}

// NewAllowList creates an AllowList. Duplicates are ignored. An empty list
// permits nobody.
func NewAllowList(users ...string) *AllowList {
	l := &AllowList{users: make(map[string]struct{}, len(users))}
	for _, u := range users {
		if _, ok := l.users[u]; ok {
			continue
		}
		l.users[u] = struct{}{}
		l.order = append(l.order, u)
	}
	return l
}

// Allow reports whether principal is on the list.
func (l *AllowList) Allow(_ Operation, _ string, principal string) bool {
	_, ok := l.users[principal]
	return ok
}

// Users returns the listed principals in the order given.
func (l *AllowList) Users() []string {
	return append([]string(nil), l.order...)
}

// All permits an operation only when every non-nil policy does.
func All(policies ...Policy) Policy {
	var live []Policy
	for _, p := range policies {
		if p != nil {
			live = append(live, p)
		}
	}
	if len(live) == 0 {
		return AllowAll
	}
	if len(live) == 1 {
		return live[0]
	}
	return PolicyFunc(func(op Operation, dataset, principal string) bool {
		for _, p := range live {
			if !p.Allow(op, dataset, principal) {
				return false
			}
		}
		return true
	})
}

// Gate checks operations against a policy. The zero Gate permits everything.
type Gate struct {
	Policy Policy
}

// NewGate creates a Gate for policy. A nil policy permits everything.
func NewGate(policy Policy) Gate {
	return Gate{Policy: policy}
}

// Check returns nil when the operation is permitted, else an
// *errs.AccessDeniedError.
func (g Gate) Check(op Operation, dataset, principal string) error {
	if g.Policy == nil || g.Policy.Allow(op, dataset, principal) {
		return nil
	}
	return &errs.AccessDeniedError{
		Dataset:   dataset,
		Principal: principal,
		Operation: string(op),
	}
}
