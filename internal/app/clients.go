package app

import (
	"github.com/charlesng35/chatgate/internal/presenter"
	"github.com/charlesng35/chatgate/internal/rocketchat"
	"github.com/charlesng35/chatgate/internal/settings"
)

// ClientOptions returns the transport options for chat server clients.
func (c *Config) ClientOptions() rocketchat.Options {
	opts := c.Client
	opts.Timeout = c.ClientTimeout()
	return opts
}

// ClientFactory builds presenter clients bound to one server URL.
func (c *Config) ClientFactory() presenter.ClientFactory {
	opts := c.ClientOptions()
	return func(serverURL string) (presenter.Client, error) {
		return rocketchat.New(serverURL, opts)
	}
}

// FetcherFactory builds settings fetchers bound to one server URL.
func (c *Config) FetcherFactory() settings.FetcherFactory {
	opts := c.ClientOptions()
	return func(serverURL string) (settings.Fetcher, error) {
		return rocketchat.New(serverURL, opts)
	}
}
