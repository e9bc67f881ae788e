package artifact

// Artifact filenames are fixed templates keyed on the round name. External
// jobs receive the located absolute paths; nothing else ever derives these
// names, so the templates live here and nowhere else.

// FlatfieldName returns the illumination flatfield filename for a round.
func FlatfieldName(round string) string { return round + "_flatfield.tiff" }

// DarkfieldName returns the illumination darkfield filename for a round.
func DarkfieldName(round string) string { return round + "_darkfield.tiff" }

// MosaicName returns the unmixing reference mosaic filename for a round.
func MosaicName(round string) string { return round + "_mosaic.tiff" }

// IllumReportName returns the illumination QA report filename for a round.
func IllumReportName(round string) string { return round + "_illum_qa.pdf" }

// StitchedFileName is the fixed per-scene output filename.
const StitchedFileName = "stitched.ome.tiff"

// MetadataFileName is the fixed per-scene OME metadata filename.
const MetadataFileName = "metadata.ome.xml"
