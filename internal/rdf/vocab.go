package rdf

import "strings"

// Namespaces of the configuration vocabulary.
const (
	NSRDF   = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	NSXSD   = "http://www.w3.org/2001/XMLSchema#"
	NSFU    = "http://jena.apache.org/fuseki#"
	NSJA    = "http://jena.hpl.hp.com/2005/11/Assembler#"
	NSTDB   = "http://jena.hpl.hp.com/2008/tdb#"
	NSStore = "urn:assay:store#"
)

// Datatype IRIs.
const (
	XSDString  = NSXSD + "string"
	XSDBoolean = NSXSD + "boolean"
	XSDInteger = NSXSD + "integer"
	XSDDecimal = NSXSD + "decimal"
	XSDDouble  = NSXSD + "double"
)

// RDF core terms.
var (
	Type  = IRI(NSRDF + "type")
	First = IRI(NSRDF + "first")
	Rest  = IRI(NSRDF + "rest")
	Nil   = IRI(NSRDF + "nil")
)

// Server and service vocabulary.
var (
	FuServer   = IRI(NSFU + "Server")
	FuService  = IRI(NSFU + "Service")
	FuServices = IRI(NSFU + "services")
	FuName     = IRI(NSFU + "name")
	FuDataset  = IRI(NSFU + "dataset")
	FuStatus   = IRI(NSFU + "status")

	FuAllowedUsers = IRI(NSFU + "allowedUsers")

	FuServiceQuery               = IRI(NSFU + "serviceQuery")
	FuServiceUpdate              = IRI(NSFU + "serviceUpdate")
	FuServiceUpload              = IRI(NSFU + "serviceUpload")
	FuServiceReadGraphStore      = IRI(NSFU + "serviceReadGraphStore")
	FuServiceReadWriteGraphStore = IRI(NSFU + "serviceReadWriteGraphStore")
	FuServiceReadQuads           = IRI(NSFU + "serviceReadQuads")
	FuServiceReadWriteQuads      = IRI(NSFU + "serviceReadWriteQuads")
)

// Service status values.
var (
	FuUninitialized = IRI(NSFU + "Uninitialized")
	FuStarting      = IRI(NSFU + "Starting")
	FuActive        = IRI(NSFU + "Active")
	FuOffline       = IRI(NSFU + "Offline")
	FuClosing       = IRI(NSFU + "Closing")
	FuClosed        = IRI(NSFU + "Closed")
)

// Assembler vocabulary.
var (
	JALoadClass     = IRI(NSJA + "loadClass")
	JAMemoryDataset = IRI(NSJA + "MemoryDataset")
	JARDFDataset    = IRI(NSJA + "RDFDataset")
)

// Storage vocabulary.
var (
	TDBDataset  = IRI(NSTDB + "DatasetTDB")
	TDBLocation = IRI(NSTDB + "location")

	StoreJournalMode = IRI(NSStore + "journalMode")
	StoreSynchronous = IRI(NSStore + "synchronous")
	StoreBusyTimeout = IRI(NSStore + "busyTimeout")
	StoreCacheSize   = IRI(NSStore + "cacheSize")
)

// Prefixes maps the built-in prefix names to namespaces.
var Prefixes = map[string]string{
	"rdf":   NSRDF,
	"xsd":   NSXSD,
	"fu":    NSFU,
	"ja":    NSJA,
	"tdb":   NSTDB,
	"store": NSStore,
}

// Expand resolves a compact "prefix:local" name against prefixes. Strings
// that are not compact names are returned unchanged with ok=false.
func Expand(name string, prefixes map[string]string) (string, bool) {
	prefix, local, found := strings.Cut(name, ":")
	if !found || strings.HasPrefix(local, "//") {
		return name, false
	}
	ns, ok := prefixes[prefix]
	if !ok {
		return name, false
	}
	return ns + local, true
}

// Compact is the inverse of Expand, used for log output. Unknown namespaces
// return the IRI unchanged.
func Compact(iri string) string {
	best, bestNS := "", ""
	for prefix, ns := range Prefixes {
		if strings.HasPrefix(iri, ns) && len(ns) > len(bestNS) {
			best, bestNS = prefix, ns
		}
	}
	if bestNS == "" {
		return iri
	}
	return best + ":" + strings.TrimPrefix(iri, bestNS)
}
