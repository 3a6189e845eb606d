package channels

import (
	"regexp"
	"testing"

	"github.com/voxagent/voxagent/internal/bus"
	"github.com/voxagent/voxagent/internal/config/channel"
)

func TestSlackPolicies(t *testing.T) {
	cfg := channel.DefaultSlackConfig()
	cfg.GroupAllowFrom = []string{"C1"}
	cfg.DM.AllowFrom = []string{"U1"}
	s := NewSlackChannel(cfg, bus.NewMessageBus(1))
	s.botUserID = "UBOT"
	s.mention = regexp.MustCompile(`<@UBOT>\s*`)

	if !s.isAllowedSlack("U9", "D1", "im") {
		t.Error("open DM policy should allow anyone")
	}
	s.cfg.DM.Policy = "allowlist"
	if s.isAllowedSlack("U9", "D1", "im") || !s.isAllowedSlack("U1", "D1", "im") {
		t.Error("DM allowlist not enforced")
	}

	if s.shouldRespond("message", "hello", "C2") {
		t.Error("mention policy should ignore plain messages")
	}
	if !s.shouldRespond("message", "<@UBOT> hi", "C2") || !s.shouldRespond("app_mention", "hi", "C2") {
		t.Error("mention policy should answer mentions")
	}

	s.cfg.GroupPolicy = "allowlist"
	if s.isAllowedSlack("U9", "C2", "channel") || !s.isAllowedSlack("U9", "C1", "channel") {
		t.Error("group allowlist not enforced")
	}
	s.cfg.GroupPolicy = "open"
	if !s.shouldRespond("message", "anything", "C3") {
		t.Error("open policy should answer everything")
	}
}
