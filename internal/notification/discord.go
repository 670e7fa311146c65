package notification

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/heatscape/heatscape-cli/internal/properties"
)

type DiscordMessage struct {
	Embeds []DiscordEmbed `json:"embeds"`
}

type DiscordEmbed struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       int    `json:"color"`
}

// SendDiscordErrorNotification posts a red embed to the error webhook.
// With no webhook configured it does nothing.
func SendDiscordErrorNotification(errorMessage string) error {
	return send(properties.DiscordErrorNotificationUrl(), DiscordEmbed{
		Title:       "🚨 Retrieval failed",
		Description: errorMessage,
		Color:       16711680, // Red color
	})
}

// SendDiscordSuccessNotification posts a green embed to the success
// webhook. With no webhook configured it does nothing.
func SendDiscordSuccessNotification(successMessage string) error {
	return send(properties.DiscordSuccessNotificationUrl(), DiscordEmbed{
		Title:       "✅ Retrieval finished",
		Description: successMessage,
		Color:       65280, // Green color
	})
}

func send(webhookURL string, embed DiscordEmbed) error {
	if webhookURL == "" {
		return nil
	}

	payload, err := json.Marshal(DiscordMessage{Embeds: []DiscordEmbed{embed}})
	if err != nil {
		return err
	}

	resp, err := http.Post(webhookURL, "application/json", bytes.NewBuffer(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to send Discord notification, status code: %d", resp.StatusCode)
	}
	return nil
}
