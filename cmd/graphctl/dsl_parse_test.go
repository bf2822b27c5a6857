package main

import (
	"testing"

	"github.com/kestrelgraph/sqlitegraph/graph"
)

func TestParseTripleDSLOutgoing(t *testing.T) {
	triple, err := parseTripleDSL("-[CALLS]->")
	if err != nil {
		t.Fatalf("parseTripleDSL: %v", err)
	}
	if triple.EdgeType != "CALLS" || triple.Direction != graph.Outgoing {
		t.Fatalf("want CALLS/Outgoing, got %+v", triple)
	}
}

func TestParseTripleDSLIncoming(t *testing.T) {
	triple, err := parseTripleDSL("<-[IMPORTS]-")
	if err != nil {
		t.Fatalf("parseTripleDSL: %v", err)
	}
	if triple.EdgeType != "IMPORTS" || triple.Direction != graph.Incoming {
		t.Fatalf("want IMPORTS/Incoming, got %+v", triple)
	}
}

func TestParseTripleDSLRejectsGarbage(t *testing.T) {
	if _, err := parseTripleDSL("not a pattern"); err == nil {
		t.Fatalf("want an error for an unrecognized pattern string")
	}
	if _, err := parseTripleDSL("-[]->"); err == nil {
		t.Fatalf("want an error for an empty edge type")
	}
}
