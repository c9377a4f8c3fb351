package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSlackAPI struct {
	channels []string
	options  [][]slack.MsgOption
	err      error
}

func (f *fakeSlackAPI) PostMessageContext(ctx context.Context, channel string, options ...slack.MsgOption) (string, string, error) {
	f.channels = append(f.channels, channel)
	f.options = append(f.options, options)
	return channel, "", f.err
}

func TestSlackNotifier_PostsToConfiguredChannel(t *testing.T) {
	api := &fakeSlackAPI{}
	n := &SlackNotifier{api: api, channel: "#stock-alerts"}

	err := n.ShortageDetected(context.Background(), ShortageAlert{
		SKUCode:    "SKU-001",
		SKUName:    "Pillow",
		UnmetCount: 148,
	})
	require.NoError(t, err)
	require.Len(t, api.channels, 1)
	assert.Equal(t, "#stock-alerts", api.channels[0])
}

func TestSlackNotifier_DryRunSkipsPost(t *testing.T) {
	api := &fakeSlackAPI{}
	n := &SlackNotifier{api: api, channel: "#stock-alerts", dryRun: true}

	require.NoError(t, n.SellableLotChanged(context.Background(), LotShiftAlert{
		SKUCode:     "SKU-001",
		PreviousLot: "REAL",
		NextLot:     "PO-2024-07",
	}))
	assert.Empty(t, api.channels)
}

func TestSlackNotifier_WrapsAPIErrors(t *testing.T) {
	api := &fakeSlackAPI{err: errors.New("channel_not_found")}
	n := &SlackNotifier{api: api, channel: "#stock-alerts"}

	err := n.NegativeInventory(context.Background(), "SKU-001", -10)
	assert.ErrorContains(t, err, "channel_not_found")
}

func TestShortageAttachment(t *testing.T) {
	att := shortageAttachment(ShortageAlert{SKUCode: "SKU-001", SKUName: "Pillow", UnmetCount: 148})

	assert.Equal(t, colorDanger, att.Color)
	assert.Equal(t, "Pillow (SKU-001)", att.Title)
	require.Len(t, att.Fields, 2)
	assert.Equal(t, "148", att.Fields[1].Value)
}
