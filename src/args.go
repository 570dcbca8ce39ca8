package src

import (
	"flag"
	"fmt"
	"log"
	"os"
)

type Args struct {
	CfgFile    string
	InputFile  string
	ProtoLib   string
	ConnStr    string
	SchemaType string
	Topic      string
	NoDisplay  bool

	ConfigPath string
	SensorID   string
	SocketPath string

	Version bool
	Help    bool
}

func ParseArgs() Args {
	args, err := parseArgs(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalln("args parse error", err)
	}
	return args
}

func parseArgs(fs *flag.FlagSet, arguments []string) (Args, error) {
	var args Args

	// short and long names share one value
	stringVar := func(p *string, short string, long string, value string, usage string) {
		if short != "" {
			fs.StringVar(p, short, value, usage)
		}
		fs.StringVar(p, long, value, usage)
	}

	stringVar(&args.CfgFile, "c", "cfg-file", "", "Adaptor config file, optional if conn-str has relevant details")
	stringVar(&args.InputFile, "i", "input-file", "", "Input H264 file")
	stringVar(&args.ProtoLib, "p", "proto-lib", "", "Broker adaptor, mqtt or websocket, or an adaptor library path")
	stringVar(&args.ConnStr, "", "conn-str", "", "Broker connection string host;port[;topic]")
	stringVar(&args.SchemaType, "s", "schema-type", "0", "Message schema, 0 full, 1 minimal")
	stringVar(&args.Topic, "t", "topic", "", "Message topic, optional if part of conn-str or cfg-file")
	fs.BoolVar(&args.NoDisplay, "no-display", false, "Disable display")

	fs.StringVar(&args.ConfigPath, "config", "", "Application yaml config file")
	fs.StringVar(&args.SensorID, "sensor-id", "", "Sensor id put in every event")
	fs.StringVar(&args.SocketPath, "socket-path", "", "Analytics metadata socket path")

	fs.BoolVar(&args.Version, "version", false, "Print version")
	fs.BoolVar(&args.Help, "help", false, "Print help")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage of %s:\n", fs.Name())
		fmt.Fprintf(fs.Output(), "  %s -i <H264 filename> -p <proto adaptor> --conn-str=<connection string>\n", fs.Name())
		fs.PrintDefaults()
	}

	err := fs.Parse(arguments)

	return args, err
}

func (a *Args) Validate() error {
	if a.InputFile == "" {
		return fmt.Errorf("input file is required")
	} else if a.ProtoLib == "" {
		return fmt.Errorf("proto lib is required")
	}
	return nil
}
