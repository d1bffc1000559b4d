package database

import (
	"context"
	"testing"
	"time"

	"go-pos-backoffice/internal/config"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestNilCacheIsNoop(t *testing.T) {
	ctx := context.Background()
	var c *Cache

	var dest map[string]string
	found, err := c.GetObject(ctx, "k", &dest)
	if err != nil || found {
		t.Errorf("GetObject = %v, %v; want miss", found, err)
	}
	if err := c.SetObject(ctx, "k", map[string]string{"a": "b"}, time.Minute); err != nil {
		t.Errorf("SetObject: %v", err)
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete: %v", err)
	}
	release, err := c.Lock(ctx, "settlement:sale:1", time.Second)
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	release()
	if err := InvalidateLatestRate(ctx, c); err != nil {
		t.Errorf("InvalidateLatestRate: %v", err)
	}
}

func TestConnectRedisWithoutAddressLogs(t *testing.T) {
	hook := test.NewLocal(config.GetLogger())
	defer hook.Reset()

	if c := ConnectRedis(context.Background(), &config.Config{}); c != nil {
		t.Fatalf("cache = %v, want nil without REDIS_ADDRESS", c)
	}

	entry := hook.LastEntry()
	if entry == nil {
		t.Fatal("nothing logged")
	}
	if entry.Level != logrus.InfoLevel || entry.Data["module"] != "database" {
		t.Errorf("entry = %s %v, want info from module database", entry.Level, entry.Data)
	}
}
