package platform

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/flutter-host/channel"
	"github.com/wippyai/flutter-host/codec"
)

type brokenClipboard struct{}

func (brokenClipboard) ReadText() (string, error) { return "", stderrors.New("no display") }
func (brokenClipboard) WriteText(string) error { return stderrors.New("no display") }

func invoke(p *Plugin, method string, args any) (codec.Value, error) {
	return p.HandleMethodCall(context.Background(), codec.MethodCall{Method: method, Args: codec.MustFromGo(args)})
}

func TestClipboard(t *testing.T) {
	p := New()

	_, err := invoke(p, "Clipboard.setData", map[string]any{"text": "hello"})
	require.NoError(t, err)
	text, err := p.Clipboard().ReadText()
	require.NoError(t, err)
	assert.Equal(t, "hello", text)

	v, err := invoke(p, "Clipboard.getData", "text/plain")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"text": "hello"}, codec.ToGo(v))

	_, err = invoke(p, "Clipboard.setData", "bare string")
	var mce *channel.MethodCallError
	require.ErrorAs(t, err, &mce)
	assert.Equal(t, "bad_args", mce.Code)
}

func TestClipboardErrors(t *testing.T) {
	p := New(WithClipboard(brokenClipboard{}))

	_, err := invoke(p, "Clipboard.getData", nil)
	assert.EqualError(t, err, "no display")
	_, err = invoke(p, "Clipboard.setData", map[string]any{"text": "x"})
	assert.EqualError(t, err, "no display")
}

func TestSwitcherDescriptionAndPop(t *testing.T) {
	var got SwitcherDescription
	popped := false
	p := New(
		OnSwitcherDescription(func(d SwitcherDescription) { got = d }),
		OnPop(func() { popped = true }),
	)

	_, err := invoke(p, "SystemChrome.setApplicationSwitcherDescription",
		map[string]any{"label": "Demo", "primaryColor": 4278190335})
	require.NoError(t, err)
	assert.Equal(t, SwitcherDescription{Label: "Demo", PrimaryColor: 4278190335}, got)

	_, err = invoke(p, "SystemNavigator.pop", nil)
	require.NoError(t, err)
	assert.True(t, popped)
}

func TestUnknownMethod(t *testing.T) {
	_, err := invoke(New(), "SystemSound.play", "SystemSoundType.click")
	assert.ErrorIs(t, err, channel.ErrNotImplemented)
}
