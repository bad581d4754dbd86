package telemetry

import "go.opentelemetry.io/otel/attribute"

// Span attribute keys used across services.
const (
	AttrOriginStopID      = attribute.Key("busfinder.origin_stop_id")
	AttrDestinationStopID = attribute.Key("busfinder.destination_stop_id")
	AttrOriginName        = attribute.Key("busfinder.origin_name")
	AttrDestinationName   = attribute.Key("busfinder.destination_name")
	AttrLinesMatched      = attribute.Key("busfinder.lines_matched")
	AttrSegments          = attribute.Key("busfinder.segments")
	AttrCatalogStops      = attribute.Key("busfinder.catalog.stops")
	AttrCatalogLines      = attribute.Key("busfinder.catalog.lines")
)
