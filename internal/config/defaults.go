package config

const (
	defaultLibraryDir = "~/library"
	defaultDataDir    = "~/.local/share/trickplay"
	defaultStagingDir = "~/.local/share/trickplay/staging"
	defaultLogDir     = "~/.local/share/trickplay/logs"
	defaultAPIBind    = "127.0.0.1:7489"
	defaultTileWidth  = 10
	defaultTileHeight = 10
	defaultQuality    = 85
	defaultLogFormat  = "console"
	defaultLogLevel   = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LibraryDir: defaultLibraryDir,
			DataDir:    defaultDataDir,
			StagingDir: defaultStagingDir,
			LogDir:     defaultLogDir,
			APIBind:    defaultAPIBind,
		},
		Trickplay: Trickplay{
			Widths:     []int{320},
			TileWidth:  defaultTileWidth,
			TileHeight: defaultTileHeight,
			Quality:    defaultQuality,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
