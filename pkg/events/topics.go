package events

const (
	TopicConfigSaved            = "confd:events:config:saved"
	TopicConfigSaveFailed       = "confd:events:config:save_failed"
	TopicConfigLoadFailed       = "confd:events:config:load_failed"
	TopicConfigConflict         = "confd:events:config:conflict"
	TopicConfigPermissionDenied = "confd:events:config:permission_denied"
	TopicConfigValidation       = "confd:events:config:validation"
)
