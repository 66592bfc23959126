package risetime

type BoardConfig struct {
	Name         string `json:"name" yaml:"name"`
	Family       string `json:"family" yaml:"family"`
	SinglesPath  string `json:"singles_path" yaml:"singles_path"`
	AveragesPath string `json:"averages_path" yaml:"averages_path"`
}

type Configuration struct {
	Boards       []BoardConfig  `json:"boards" yaml:"boards"`
	WaveformType WaveformType   `json:"waveform_type" yaml:"waveform_type"`
	Output       bool           `json:"output" yaml:"output"`
	Input        bool           `json:"input" yaml:"input"`
	Analysis     AnalysisParams `json:"analysis" yaml:"analysis"`
	DelayTrace   int            `json:"delay_trace" yaml:"delay_trace"`
	BinWidth     float64        `json:"bin_width" yaml:"bin_width"`
	Verbosity    int            `json:"verbosity" yaml:"verbosity"`
	NumWorkers   int            `json:"num_workers" yaml:"num_workers"`
	FileOut      string         `json:"file_out" yaml:"file_out"`
	MetricsFile  string         `json:"metrics_file" yaml:"metrics_file"`
	WriteDB      bool           `json:"write_db" yaml:"write_db"`
	Host         string         `json:"host" yaml:"host"`
	User         string         `json:"user" yaml:"user"`
	Passwd       string         `json:"pass" yaml:"pass"`
	DBName       string         `json:"dbname" yaml:"dbname"`
}

// DefaultConfiguration returns the values used when a configuration file
// leaves a field unset.
func DefaultConfiguration() Configuration {
	return Configuration{
		WaveformType: Averages,
		Output:       true,
		Input:        false,
		Analysis:     DefaultAnalysisParams(),
		DelayTrace:   0,
		BinWidth:     0.25,
		Verbosity:    0,
		NumWorkers:   1,
		WriteDB:      false,
		Host:         "localhost",
		User:         "risetime",
		Passwd:       "",
		DBName:       "BoardTiming",
	}
}

var configuration Configuration

func GetConfiguration() Configuration {
	return configuration
}

func SetConfiguration(config Configuration) {
	configuration = config
}
