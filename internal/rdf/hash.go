package rdf

import (
	"crypto/sha256"
	"encoding/hex"
)

// Domain prefixes for content-derived identifiers.
// Version suffix enables future algorithm migration.
const (
	DomainServiceGraph = "assay/service-graph/v1"
)

// ServiceGraphPrefix is the IRI prefix of system database graphs.
const ServiceGraphPrefix = "urn:assay:service:"

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ServiceGraphName returns the named graph that holds the persisted
// descriptor of the access point called canonicalName. The same name always
// maps to the same graph, so persisting twice replaces rather than
// duplicates.
func ServiceGraphName(canonicalName string) Node {
	return IRI(ServiceGraphPrefix + hashWithDomain(DomainServiceGraph, []byte(canonicalName)))
}
