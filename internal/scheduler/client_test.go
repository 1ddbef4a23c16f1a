package scheduler

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
)

type testSchedulerConfig struct {
	redisURL string
	queue    string
}

func (c testSchedulerConfig) GetRedisURL() string       { return c.redisURL }
func (c testSchedulerConfig) GetRedisTLSInsecure() bool { return false }
func (c testSchedulerConfig) GetAsynqQueueName() string { return c.queue }
func (c testSchedulerConfig) GetAsynqConcurrency() int  { return 1 }

func TestNewClient_RequiresRedisURL(t *testing.T) {
	if _, err := NewClient(testSchedulerConfig{}); err == nil {
		t.Fatal("expected error without redis url")
	}
}

func TestNewClient_RejectsMalformedURL(t *testing.T) {
	if _, err := NewClient(testSchedulerConfig{redisURL: "://not-a-url"}); err == nil {
		t.Fatal("expected error for malformed redis url")
	}
}

func TestEnqueueSyncTask_WritesToQueue(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewClient(testSchedulerConfig{redisURL: "redis://" + mr.Addr(), queue: "sync"})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	defer func() { _ = client.Close() }()

	if err := client.EnqueueSyncTask(context.Background(), uuid.New()); err != nil {
		t.Fatalf("EnqueueSyncTask returned error: %v", err)
	}

	if len(mr.Keys()) == 0 {
		t.Fatal("expected queue state in redis after enqueue")
	}
}

func TestEnqueueSyncTask_NilClientIsNoop(t *testing.T) {
	var client *Client
	if err := client.EnqueueSyncTask(context.Background(), uuid.New()); err != nil {
		t.Fatalf("expected nil client to be a no-op, got %v", err)
	}
}

func TestRedisClientOpt_ParsesAddrAndDB(t *testing.T) {
	opt, err := redisClientOpt("redis://:secret@localhost:6380/2", false)
	if err != nil {
		t.Fatalf("redisClientOpt returned error: %v", err)
	}
	if opt.Addr != "localhost:6380" {
		t.Errorf("expected addr localhost:6380, got %s", opt.Addr)
	}
	if opt.Password != "secret" {
		t.Errorf("expected password to be carried over")
	}
	if opt.DB != 2 {
		t.Errorf("expected db 2, got %d", opt.DB)
	}
	if opt.TLSConfig != nil {
		t.Error("expected no TLS config for redis scheme")
	}
}

func TestRedisClientOpt_InsecureTLS(t *testing.T) {
	opt, err := redisClientOpt("rediss://localhost:6380", true)
	if err != nil {
		t.Fatalf("redisClientOpt returned error: %v", err)
	}
	if opt.TLSConfig == nil || !opt.TLSConfig.InsecureSkipVerify {
		t.Fatal("expected insecure TLS config for rediss scheme with tlsInsecure")
	}
}
