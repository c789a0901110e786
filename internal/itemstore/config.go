package itemstore

import "time"

// Configuration is read from flags and environment by goconfig
type Configuration struct {
	HttpAddr   string        `usage:"HTTP address"`
	Seed       int           `usage:"number of available ids to start with"`
	SelectLag  time.Duration `usage:"delay before a selected id moves"`
	IngestLag  time.Duration `usage:"delay before an added id becomes available"`
	AccessLog  bool          `usage:"log every request to stdout"`
	ShowConfig bool          `usage:"print config"`
}

func Default() Configuration {
	return Configuration{
		HttpAddr:  "localhost:8080",
		Seed:      1000,
		SelectLag: 500 * time.Millisecond,
		IngestLag: 10 * time.Second,
		AccessLog: true,
	}
}

// Options converts the configuration into store options
func (c Configuration) Options() Options {
	return Options{
		Seed:      c.Seed,
		SelectLag: c.SelectLag,
		IngestLag: c.IngestLag,
	}
}
