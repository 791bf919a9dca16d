package repository

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/mohammad-safakhou/careerchat/config"
)

func TestNewConversationRepositoryRejectsUnknownBackend(t *testing.T) {
	repo, err := NewConversationRepository(context.Background(), config.StorageConfig{Backend: "sqlite"})
	if err == nil || repo != nil {
		t.Fatalf("expected error for unknown backend, got repo=%v err=%v", repo, err)
	}
}

func TestNewConversationRepositoryPostgresNeedsHost(t *testing.T) {
	_, err := NewConversationRepository(context.Background(), config.StorageConfig{Backend: config.StorageBackendPostgres})
	if err == nil {
		t.Fatal("expected error when postgres host and url are missing")
	}
}

func TestNewConversationRepositoryPostgresTimesOut(t *testing.T) {
	// accepts connections and never answers the startup handshake
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		var held []net.Conn
		defer func() {
			for _, c := range held {
				c.Close()
			}
		}()
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			held = append(held, c)
		}
	}()
	_, port, _ := net.SplitHostPort(ln.Addr().String())

	start := time.Now()
	_, err = NewConversationRepository(context.Background(), config.StorageConfig{
		Backend: config.StorageBackendPostgres,
		Postgres: config.PostgresConfig{
			Host:    "127.0.0.1",
			Port:    port,
			User:    "careerchat",
			DBName:  "careerchat",
			Timeout: time.Second,
		},
	})
	if err == nil {
		t.Fatal("expected connection error")
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Fatalf("connect took %s despite a 1s timeout", elapsed)
	}
}
