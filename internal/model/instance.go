package model

import "time"

// InstanceContext is synthesized once per inbound request (HTTP mode, from
// transport headers) or once at process start (stdio mode, from
// configuration). It is hashed into a cache key and then discarded — it is
// never logged or persisted verbatim (§3, §4.6).
type InstanceContext struct {
	APIURL     string
	APIKey     string
	InstanceID string
	SessionID  string
	Metadata   map[string]string
}

// ClientCacheEntry is one row of the instance-scoped client cache (§3, §4.6).
type ClientCacheEntry struct {
	Client     any // *hostclient.Client, held as any to avoid an import cycle
	CreatedAt  time.Time
	LastAccess time.Time
}
