package mqtt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestControlTopics(t *testing.T) {
	assert.Equal(t, TopicControlMode, ControlTopic("mode"))
	assert.Equal(t, TopicControlFade, ControlTopic("fade"))

	assert.Equal(t, "map", ControlName(TopicControlMap))
	assert.Equal(t, "sprite_tag", ControlName(TopicControlTag))
	assert.Equal(t, "", ControlName(TopicContextPhase))
	assert.Equal(t, "", ControlName("dns/control/"))
}
