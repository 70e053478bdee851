package shared

// User-facing messages shown by the CLI, TUI and web dashboard.
const (
	MsgNoClients       = "No clients found or an error occurred."
	MsgNoSites         = "No sites found for the selected client."
	MsgNoBuildings     = "No buildings found for the selected site."
	MsgNoLevels        = "No levels found for the selected building."
	MsgNoGeoJSON       = "No GeoJSON data found for the selected level."
	MsgUploadFiles     = "Please upload one or more JSON files."
	MsgNoneMissing     = "No beacons are missing."
	MsgNoGeometry      = "The fetched GeoJSON data does not contain valid geometries."
	MsgLoginRequired   = "Please log in to access this page."
	MsgLoginFailed     = "Login failed. Check your username/password."
	MsgBothRequired    = "Both email and password are required."
	MsgInvalidEmail    = "Invalid email format. Please enter a valid email address."
	MsgNoNotes         = "No notes provided"
	MsgLocationMissing = "Location not found"
	MsgLocationError   = "Error obtaining location"
)

// Download file names offered for CSV exports.
const (
	MissingBeaconsFile = "missing_beacons.csv"
	BeaconDataFile     = "beacon_data.csv"
)
