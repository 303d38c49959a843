package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/roach88/assay/internal/service"
)

// OperationView is one operation kind and the endpoint paths bound to it.
// An empty path means dispatch on the service root.
type OperationView struct {
	Kind      string   `json:"kind"`
	Endpoints []string `json:"endpoints"`
}

// AccessPointView is the printable form of an access point.
type AccessPointView struct {
	Name         string          `json:"name"`
	Status       string          `json:"status"`
	Location     string          `json:"location,omitempty"`
	Operations   []OperationView `json:"operations"`
	Restricted   bool            `json:"restricted"`
	AllowedUsers []string        `json:"allowed_users,omitempty"`
}

func newAccessPointView(ap *service.DataAccessPoint) AccessPointView {
	svc := ap.Service()
	v := AccessPointView{
		Name:       ap.Name(),
		Status:     string(svc.Status()),
		Operations: []OperationView{},
	}
	if svc.Dataset != nil {
		v.Location = svc.Dataset.Location.String()
	}
	for _, kind := range svc.Operations() {
		v.Operations = append(v.Operations, OperationView{
			Kind:      string(kind),
			Endpoints: svc.Endpoints(kind),
		})
	}
	v.AllowedUsers, v.Restricted = svc.AllowedUsers()
	return v
}

// AccessPointList is the result of commands that print access points.
type AccessPointList struct {
	AccessPoints []AccessPointView `json:"access_points"`
}

func newAccessPointList(aps []*service.DataAccessPoint) AccessPointList {
	l := AccessPointList{AccessPoints: make([]AccessPointView, 0, len(aps))}
	for _, ap := range aps {
		l.AccessPoints = append(l.AccessPoints, newAccessPointView(ap))
	}
	return l
}

// WriteText renders the list one access point per block.
func (l AccessPointList) WriteText(w io.Writer) error {
	if len(l.AccessPoints) == 0 {
		_, err := fmt.Fprintln(w, "No access points")
		return err
	}
	for _, ap := range l.AccessPoints {
		fmt.Fprintf(w, "%s [%s]", ap.Name, ap.Status)
		if ap.Location != "" {
			fmt.Fprintf(w, " %s", ap.Location)
		}
		fmt.Fprintln(w)
		for _, op := range ap.Operations {
			paths := make([]string, len(op.Endpoints))
			for i, p := range op.Endpoints {
				if p == "" {
					p = "(dispatch)"
				}
				paths[i] = p
			}
			fmt.Fprintf(w, "  %-10s %s\n", op.Kind, strings.Join(paths, ", "))
		}
		if ap.Restricted {
			fmt.Fprintf(w, "  users      %s\n", strings.Join(ap.AllowedUsers, ", "))
		}
	}
	return nil
}

// RemoveResult is the result of the remove command.
type RemoveResult struct {
	Removed string `json:"removed"`
}

// WriteText renders the removal.
func (r RemoveResult) WriteText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "Removed %s\n", r.Removed)
	return err
}
