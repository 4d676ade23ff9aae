package config

// WalkConfig contains the defaults of the walk command.
type WalkConfig struct {
	// MaxLength limits the number of bytes walked per file; 0 means no limit.
	MaxLength int
	// Hexdump is the number of payload bytes to preview in text output; 0 disables the preview.
	Hexdump int
	// Output is one of text, json, or yaml.
	Output string
	// Strict fails the walk if it produced any unknown record or found no end of central directory.
	Strict bool
}

// ForWalk returns configuration from the [walk] section.
func (l *Loader) ForWalk() (c WalkConfig) {
	sec, err := l.file().GetSection("walk")
	if err != nil {
		return c
	}

	c.MaxLength = sec.Key("max-length").MustInt(0)
	c.Hexdump = sec.Key("hexdump").MustInt(0)
	c.Output = sec.Key("output").String()
	c.Strict = sec.Key("strict").MustBool(false)

	return
}

// ForWalk calls Loader.ForWalk on the DefaultLoader instance.
func ForWalk() WalkConfig {
	return DefaultLoader.ForWalk()
}
