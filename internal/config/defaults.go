package config

const (
	defaultConfigPath       = "~/.config/cache2mp4/config.toml"
	projectConfigName       = "cache2mp4.toml"
	defaultPollInterval     = 180
	defaultSnapshotAttempts = 3
	defaultFFmpegBinary     = "ffmpeg"
	defaultContainerExt     = "mp4"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"

	// CacheDirEnv overrides cache.dir when the config file leaves it empty.
	CacheDirEnv = "CACHE2MP4_CACHE_DIR"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Cache: Cache{
			DecodeContent: true,
		},
		Poll: Poll{
			IntervalSeconds:  defaultPollInterval,
			SnapshotAttempts: defaultSnapshotAttempts,
		},
		Mux: Mux{
			FFmpegBinary: defaultFFmpegBinary,
			ContainerExt: defaultContainerExt,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
