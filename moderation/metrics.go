package moderation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var eventsProcessed = promauto.NewCounter(prometheus.CounterOpts{
	Name: "warden_events_processed",
	Help: "Number of inbound message events processed",
})

var commandsHandled = promauto.NewCounter(prometheus.CounterOpts{
	Name: "warden_commands_handled",
	Help: "Number of commands dispatched to a handler",
})

var commandsDenied = promauto.NewCounter(prometheus.CounterOpts{
	Name: "warden_commands_denied",
	Help: "Number of commands rejected by the permission check",
})

var blacklistHits = promauto.NewCounter(prometheus.CounterOpts{
	Name: "warden_blacklist_hits",
	Help: "Number of messages removed by the blacklist enforcer",
})

var invitesBlocked = promauto.NewCounter(prometheus.CounterOpts{
	Name: "warden_invites_blocked",
	Help: "Number of member invites rejected by the invite guard",
})

var mutedMessagesDeleted = promauto.NewCounter(prometheus.CounterOpts{
	Name: "warden_muted_messages_deleted",
	Help: "Number of messages deleted due to an active mute",
})

var mutesExpired = promauto.NewCounter(prometheus.CounterOpts{
	Name: "warden_mutes_expired",
	Help: "Number of mutes released by the expiry watcher",
})
