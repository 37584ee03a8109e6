package configuration

type Configuration struct {
	HttpAddr          string `usage:"HTTP address"`
	LogLevel          string `usage:"log level: debug, info, warn or error"`
	MaxDepth          int    `usage:"default maximum exploration depth, negative means unbounded"`
	Solutions         int    `usage:"default number of solutions to look for, zero means unbounded"`
	NodeCache         bool   `usage:"share structurally equal subtrees between model states"`
	Workers           int    `usage:"maximum number of explorations running at the same time"`
	Seed              int64  `usage:"default random seed"`
	ExportDir         string `usage:"directory where explored state graphs are written as JSON lines, empty disables export"`
	ApiKey            string `usage:"API key, empty disables authentication"`
	ApiSecret         string `usage:"API secret"`
	EnableCompression bool   `usage:"gzip responses"`
	Version           bool   `usage:"show version and exit"`
	ShowBanner        bool   `usage:"show big banner"`
	ShowConfig        bool   `usage:"print config"`
}

func Default() Configuration {
	return Configuration{
		HttpAddr:   "127.0.0.1:8080",
		LogLevel:   "info",
		MaxDepth:   -1,
		Solutions:  1,
		NodeCache:  true,
		Workers:    4,
		Seed:       1,
		ShowBanner: true,
	}
}
