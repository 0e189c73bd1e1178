package config

import "go.uber.org/fx"

// Module отдаёт уже загруженный конфиг; без него конфиг читается из CONFIG_FILE.
func Module(loaded *Config) fx.Option {
	if loaded == nil {
		return fx.Module("config", fx.Provide(NewConfig))
	}
	return fx.Module("config", fx.Supply(loaded))
}
