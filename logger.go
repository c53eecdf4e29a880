package writer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

const logOwner = "demmon_writer"

type formatter struct {
	owner string
	lf    logrus.Formatter
}

func (f *formatter) Format(e *logrus.Entry) ([]byte, error) {
	e.Message = fmt.Sprintf("[%s] %s", f.owner, e.Message)
	return f.lf.Format(e)
}

// NewLogger returns a logger configured from conf: stdout and, when a file
// is given, a log file under conf.Folder. Silent drops the stdout copy.
func NewLogger(conf LogConf) (*logrus.Logger, error) {
	logger := logrus.New()
	if err := setupLogger(logger, conf); err != nil {
		return nil, err
	}

	return logger, nil
}

func setupLogger(logger *logrus.Logger, conf LogConf) error {
	logger.SetFormatter(
		&formatter{
			owner: logOwner,
			lf: &logrus.TextFormatter{
				DisableColors:   true,
				ForceColors:     false,
				FullTimestamp:   true,
				TimestampFormat: time.StampMilli,
			},
		},
	)

	if conf.Level != "" {
		level, err := logrus.ParseLevel(conf.Level)
		if err != nil {
			return err
		}
		logger.SetLevel(level)
	}

	if conf.File == "" {
		if conf.Silent {
			logger.SetOutput(io.Discard)
			return nil
		}
		logger.SetOutput(os.Stdout)
		return nil
	}

	if err := os.MkdirAll(conf.Folder, 0777); err != nil {
		return err
	}

	file, err := os.Create(filepath.Join(conf.Folder, conf.File))
	if err != nil {
		return err
	}

	var out io.Writer = file

	if conf.Silent {
		logger.SetOutput(out)
		return nil
	}

	out = io.MultiWriter(os.Stdout, file)
	logger.SetOutput(out)

	return nil
}
