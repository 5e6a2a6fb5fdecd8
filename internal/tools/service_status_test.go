package tools

import (
	"context"
	"strings"
	"testing"
	"time"
)

func statusInfo(startedAt time.Time) ServiceInfo {
	return ServiceInfo{
		Version:   "1.2.3",
		Backend:   "sqlite",
		Provider:  "openai",
		StartedAt: startedAt,
	}
}

func TestServiceStatusTool_Definition(t *testing.T) {
	k := newToolKit(t)
	def := NewServiceStatusTool(k.registry, k.sup, statusInfo(time.Now())).Definition()

	if def.Name != "service_status" {
		t.Errorf("name = %q, want service_status", def.Name)
	}
}

func TestServiceStatusTool_Handle_ReportsCountersAndSessions(t *testing.T) {
	started := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	timeNow = func() time.Time { return started.Add(90 * time.Second) }
	defer func() { timeNow = time.Now }()

	k := newToolKit(t)
	sess := k.boundSession(t)
	k.registry.Create("owner-2")
	release := k.startBlocking(t, sess.ID)
	tool := NewServiceStatusTool(k.registry, k.sup, statusInfo(started))

	result, err := tool.Handle(context.Background(), callWith(map[string]interface{}{}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}

	text := getResultText(result)
	if !strings.Contains(text, "Service Status") {
		t.Error("result should contain 'Service Status' header")
	}
	if !strings.Contains(text, "**Version:** 1.2.3") {
		t.Error("result should show the version")
	}
	if !strings.Contains(text, "**Uptime:** 1m30s") {
		t.Errorf("uptime wrong:\n%s", text)
	}
	if !strings.Contains(text, "**Live sessions:** 2") {
		t.Errorf("session count wrong:\n%s", text)
	}
	if !strings.Contains(text, "**Running tasks:** 1") {
		t.Errorf("task count wrong:\n%s", text)
	}
	if !strings.Contains(text, "**Artifact backend:** sqlite") {
		t.Error("result should show the artifact backend")
	}
	if !strings.Contains(text, "**Model provider:** openai") {
		t.Error("result should show the model provider")
	}
	if !strings.Contains(text, "owner-1") || !strings.Contains(text, "owner-2") {
		t.Error("session table should list both owners")
	}

	close(release)
	waitFor(t, 2*time.Second, func() bool {
		_, ok := k.registry.Get(sess.ID)
		return !ok
	}, "teardown did not complete")
}

func TestServiceStatusTool_Handle_NoSessions(t *testing.T) {
	k := newToolKit(t)
	tool := NewServiceStatusTool(k.registry, k.sup, statusInfo(time.Now()))

	result, err := tool.Handle(context.Background(), callWith(map[string]interface{}{}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}

	text := getResultText(result)
	if !strings.Contains(text, "**Live sessions:** 0") {
		t.Errorf("session count wrong:\n%s", text)
	}
	if !strings.Contains(text, "No live sessions.") {
		t.Error("result should say no sessions are live")
	}
	if strings.Contains(text, "| Session |") {
		t.Error("empty registry should not render a session table")
	}
}
