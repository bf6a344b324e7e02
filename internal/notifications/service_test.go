package notifications

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitForDiscord_BoldsSectionTitles(t *testing.T) {
	body := "VOLUME METRICS:\nBonk-Related Posts/Comments: 7\n\nSENTIMENT ANALYSIS:\nRaw Sentiment Distribution (with trend):\n- Positive: 50.0%"

	messages := splitForDiscord(body)
	assert.Len(t, messages, 1)
	assert.Contains(t, messages[0], "**VOLUME METRICS:**")
	assert.Contains(t, messages[0], "**SENTIMENT ANALYSIS:**")
}

func TestSplitForDiscord_RespectsMessageLimit(t *testing.T) {
	var sections []string
	for i := 0; i < 10; i++ {
		sections = append(sections, strings.Repeat("x", 400))
	}
	body := strings.Join(sections, "\n\n")

	messages := splitForDiscord(body)
	assert.Greater(t, len(messages), 1)
	for _, m := range messages {
		assert.LessOrEqual(t, len(m), discordMessageLimit)
	}
}

func TestSplitForDiscord_DropsEmptySections(t *testing.T) {
	messages := splitForDiscord("first\n\n\n\nsecond\n\n")
	assert.Len(t, messages, 1)
	assert.Equal(t, "first\n\nsecond", messages[0])
}
