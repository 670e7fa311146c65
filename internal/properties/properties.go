package properties

import "os"

// RootPath is where scene downloads and retrieval products live, in a
// data/ subtree. Empty means the working directory.
func RootPath() string {
	return os.Getenv("HEATSCAPE_ROOT_PATH")
}

func SentinelHubClientID() string {
	return os.Getenv("SH_CLIENT_ID")
}

func SentinelHubClientSecret() string {
	return os.Getenv("SH_CLIENT_SECRET")
}

func SentinelHubTokenURL() string {
	if url := os.Getenv("SH_TOKEN_URL"); url != "" {
		return url
	}
	return "https://services.sentinel-hub.com/oauth/token"
}

// SentinelHubProcessURL points at the deployment hosting the Landsat
// collections.
func SentinelHubProcessURL() string {
	if url := os.Getenv("SH_PROCESS_URL"); url != "" {
		return url
	}
	return "https://services-uswest2.sentinel-hub.com/api/v1/process"
}

func DiscordErrorNotificationUrl() string {
	return os.Getenv("DISCORD_ERROR_NOTIFICATION_URL")
}

func DiscordSuccessNotificationUrl() string {
	return os.Getenv("DISCORD_SUCCESS_NOTIFICATION_URL")
}
