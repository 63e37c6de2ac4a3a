package config

// Features toggles optional parts of the service.
type Features struct {
	// Notifications stores level_up, level_unlocked and concept_completed
	// notifications after each committed mission.
	Notifications bool `env:"FEATURE_NOTIFICATIONS" envDefault:"true"`

	// DerivedCache caches suggestions and strategic context in Redis. It
	// has no effect without REDIS_URL.
	DerivedCache bool `env:"FEATURE_DERIVED_CACHE" envDefault:"true"`

	// EventForwarding publishes domain events to REDIS_EVENTS_CHANNEL.
	EventForwarding bool `env:"FEATURE_EVENT_FORWARDING" envDefault:"false"`
}

// Enabled returns the names of enabled features, for the startup log.
func (f Features) Enabled() []string {
	var out []string
	if f.Notifications {
		out = append(out, "notifications")
	}
	if f.DerivedCache {
		out = append(out, "derived_cache")
	}
	if f.EventForwarding {
		out = append(out, "event_forwarding")
	}
	return out
}
