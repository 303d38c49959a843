package testutil

import (
	"github.com/roach88/assay/internal/rdf"
)

// NS is the namespace of test resources.
const NS = "http://example.org/"

// Ex returns the test IRI for local.
func Ex(local string) rdf.Node {
	return rdf.IRI(NS + local)
}

// Config builds configuration graphs for tests.
//
//	g := testutil.NewConfig().
//		MemDataset("ds", "--mem--/books").
//		Service("svc", "books", testutil.Ex("ds")).
//		Endpoints("svc", rdf.FuServiceQuery, "query").
//		Graph()
type Config struct {
	b *rdf.Builder
}

// NewConfig creates an empty Config.
func NewConfig() *Config {
	return &Config{b: rdf.NewBuilder()}
}

// Add adds one statement.
func (c *Config) Add(s, p, o rdf.Node) *Config {
	c.b.Add(s, p, o)
	return c
}

// Server declares a server resource with ja:loadClass values.
func (c *Config) Server(id string, loadClasses ...rdf.Node) *Config {
	c.b.Add(Ex(id), rdf.Type, rdf.FuServer)
	for _, lc := range loadClasses {
		c.b.Add(Ex(id), rdf.JALoadClass, lc)
	}
	return c
}

// Service declares a fu:Service named name over dataset.
func (c *Config) Service(id, name string, dataset rdf.Node) *Config {
	s := Ex(id)
	c.b.Add(s, rdf.Type, rdf.FuService)
	c.b.Add(s, rdf.FuName, rdf.Literal(name))
	c.b.Add(s, rdf.FuDataset, dataset)
	return c
}

// Endpoints adds endpoint paths for property on the service id.
func (c *Config) Endpoints(id string, property rdf.Node, paths ...string) *Config {
	for _, p := range paths {
		c.b.Add(Ex(id), property, rdf.Literal(p))
	}
	return c
}

// AllowedUsers adds fu:allowedUsers values on the service id.
func (c *Config) AllowedUsers(id string, users ...rdf.Node) *Config {
	for _, u := range users {
		c.b.Add(Ex(id), rdf.FuAllowedUsers, u)
	}
	return c
}

// MemDataset declares a tdb:DatasetTDB at location.
func (c *Config) MemDataset(id, location string) *Config {
	d := Ex(id)
	c.b.Add(d, rdf.Type, rdf.TDBDataset)
	c.b.Add(d, rdf.TDBLocation, rdf.Literal(location))
	return c
}

// Graph freezes the configuration.
func (c *Config) Graph() *rdf.Graph {
	return c.b.Graph()
}
