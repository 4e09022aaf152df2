package excel

// Config holds configuration for Excel adapter
type Config struct {
	FilePath  string // Path to the Excel file
	SheetName string // Worksheet inside the file; defaults to the exported sheet's name, or the active worksheet when loading
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.FilePath == "" {
		return ErrMissingFilePath
	}
	return nil
}

// worksheet returns the worksheet name used for a sheet called fallback.
// Excel limits worksheet names to 31 characters.
func (c *Config) worksheet(fallback string) string {
	name := c.SheetName
	if name == "" {
		name = fallback
	}
	if name == "" {
		name = "Sheet1"
	}
	if r := []rune(name); len(r) > 31 {
		name = string(r[:31])
	}
	return name
}
