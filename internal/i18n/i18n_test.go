package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager("en", zap.NewNop())
	require.NoError(t, err)
	return m
}

func TestNewManagerLoadsEmbeddedLocales(t *testing.T) {
	m := newTestManager(t)

	langs := m.GetAvailableLanguages()
	assert.Contains(t, langs, "en")
	assert.Contains(t, langs, "zh")
	assert.Equal(t, "en", m.GetDefaultLanguageTag().String())
}

func TestNewManagerRejectsBadTag(t *testing.T) {
	_, err := NewManager("not a tag!", zap.NewNop())
	assert.Error(t, err)
}

func TestT(t *testing.T) {
	m := newTestManager(t)
	zh := "zh"
	unknown := "xx"

	assert.Equal(t, "Please enter a prompt", m.T(nil, "error_empty_prompt"))
	assert.Equal(t, "请输入提示词", m.T(&zh, "error_empty_prompt"))
	assert.Equal(t, "Please enter a prompt", m.T(&unknown, "error_empty_prompt"), "unknown languages fall back to default")
	assert.Equal(t, "no_such_key", m.T(nil, "no_such_key"))
}

func TestTTemplateAndPlural(t *testing.T) {
	m := newTestManager(t)

	assert.Equal(t, "Generating image, please wait...", m.T(nil, "status_generating", 1, "count", 1))
	assert.Equal(t, "Generating 4 images, please wait...", m.T(nil, "status_generating", 4, "count", 4))
	assert.Equal(t, "Image count must be between 1 and 4", m.T(nil, "error_invalid_count", map[string]interface{}{"max": 4}))

	assert.Equal(t, `Generated image for "fox"`, m.T(nil, "status_success", 1, "count", 1, "prompt", "fox"))
	assert.Equal(t, `Generated 3 images for "fox"`, m.T(nil, "status_success", 3, "count", 3, "prompt", "fox"))

	zh := "zh"
	assert.Equal(t, "正在生成 2 张图片，请稍候...", m.T(&zh, "status_generating", 2, "count", 2))
}
