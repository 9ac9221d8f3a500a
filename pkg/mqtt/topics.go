package mqtt

import "fmt"

// Topic constants for the day/night agent
const (
	// Context topics (output)
	TopicContextBase  = "dns/context"
	TopicContextPhase = "dns/context/phase"
	TopicContextFrame = "dns/context/frame"

	// Retained online/offline marker
	TopicContextStatus = "dns/context/status"

	// Control topics (input)
	TopicControlBase = "dns/control"
	TopicControlAll  = "dns/control/+"
	TopicControlMode = "dns/control/mode"
	TopicControlMap  = "dns/control/map"
	TopicControlFade = "dns/control/fade"
	TopicControlTag  = "dns/control/sprite_tag"

	// Test harness topics
	TopicTestTimeConfig = "dns/test/time_config"
)

// ControlTopic constructs a control topic for a named control
// Pattern: dns/control/{control}
func ControlTopic(control string) string {
	return fmt.Sprintf("%s/%s", TopicControlBase, control)
}

// ControlName extracts the control name from a control topic
// dns/control/{control} -> {control}
func ControlName(topic string) string {
	prefix := TopicControlBase + "/"
	if len(topic) <= len(prefix) || topic[:len(prefix)] != prefix {
		return ""
	}
	return topic[len(prefix):]
}
