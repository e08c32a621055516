package logging

// Standardized attribute keys shared across components.
const (
	// FieldComponent identifies the emitting component (resolver, discogs, ...).
	FieldComponent = "component"
	// FieldCorrelationID ties the log lines of one resolution attempt together.
	FieldCorrelationID = "correlation_id"
	// FieldEventType labels machine-filterable events (cache_hit, search_miss, ...).
	FieldEventType = "event_type"
	// FieldErrorHint carries the suggested operator action for warnings and errors.
	FieldErrorHint = "error_hint"
	// FieldFile is the audio file a record concerns.
	FieldFile = "file"
	// FieldArtist and FieldAlbum carry the lookup identity of a resolution.
	FieldArtist = "artist"
	FieldAlbum  = "album"
	// FieldCatalog is the resolved catalog number.
	FieldCatalog = "catalog_number"
)
