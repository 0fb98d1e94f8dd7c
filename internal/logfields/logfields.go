package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyStage      = "stage"
	KeyStatus     = "status"
	KeyDurationMS = "duration_ms"
	KeyKeyword    = "keyword"
	KeyTenantID   = "tenant_id"
	KeyEntityID   = "entity_id"
	KeyProvider   = "provider"
	KeyModel      = "model"
	KeySchedule   = "schedule_name"
	KeyProgress   = "progress"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func Status(s string) slog.Attr       { return slog.String(KeyStatus, s) }
func DurationMS(ms int64) slog.Attr   { return slog.Int64(KeyDurationMS, ms) }
func Keyword(k string) slog.Attr      { return slog.String(KeyKeyword, k) }
func TenantID(id string) slog.Attr    { return slog.String(KeyTenantID, id) }
func EntityID(id string) slog.Attr    { return slog.String(KeyEntityID, id) }
func Provider(p string) slog.Attr     { return slog.String(KeyProvider, p) }
func Model(m string) slog.Attr        { return slog.String(KeyModel, m) }
func ScheduleName(n string) slog.Attr { return slog.String(KeySchedule, n) }
func Progress(p int) slog.Attr        { return slog.Int(KeyProgress, p) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
