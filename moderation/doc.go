// Moderation engine for group chat conversations.
//
// This package tracks per-conversation and global roles, warnings, timed
// mutes and bans, enforces a word blacklist, and guards member invitations.
// Inbound platform events are normalized to MessageEvent at the ingestion
// boundary and run through Engine.ProcessMessage; two background loops
// (RunMuteWatcher, RunDailyMaintenance) reconcile timed state and ship
// snapshots. All state lives in the modstore; see cmd/warden for the daemon
// built on this package.
package moderation
