package main

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
)

func TestListPrintsEmbeddedMigrations(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"list"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, want := range []string{"00001_report_usage.sql", "00004_knowledge_entries.sql"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("expected %s in output:\n%s", want, out.String())
		}
	}
}

func TestConnectFailureIsReported(t *testing.T) {
	prev := connect
	connect = func(context.Context) (*sql.DB, error) {
		return nil, errors.New("DATABASE_URL is empty")
	}
	defer func() { connect = prev }()

	cmd := newRootCmd()
	cmd.SetArgs([]string{"up"})
	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "DATABASE_URL is empty") {
		t.Fatalf("expected connect error, got %v", err)
	}
}

func TestUnknownSubcommand(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"sideways"})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for unknown subcommand")
	}
}
