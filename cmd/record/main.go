package main

import (
	"context"
	"os"
	"time"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/findusl/wav-recorder/pkg/wav"
	"github.com/findusl/wav-recorder/pkg/wavrecorder"
	_ "github.com/findusl/wav-recorder/pkg/wavrecorder/backends/malgo"
	_ "github.com/findusl/wav-recorder/pkg/wavrecorder/backends/portaudio"
	_ "github.com/findusl/wav-recorder/pkg/wavrecorder/backends/pulseaudio"
	"github.com/findusl/wav-recorder/pkg/wavrecorder/eventsink"
	"github.com/spf13/pflag"
	"github.com/xaionaro-go/datacounter"
)

func main() {
	loggerLevel := logger.LevelInfo
	pflag.Var(&loggerLevel, "log-level", "Log level")
	duration := pflag.Duration("duration", 5*time.Second, "how long to record")
	pflag.Parse()

	l := logrus.Default().WithLevel(loggerLevel)
	ctx := logger.CtxWithLogger(context.Background(), l)
	logger.Default = func() logger.Logger {
		return l
	}
	defer belt.Flush(ctx)

	logger.Infof(ctx, "starting...")
	recorder := wavrecorder.NewRecorderAuto(ctx, wavrecorder.OptionEventSink(eventsink.Logger{}))
	defer recorder.Close()
	if !recorder.IsAvailable() {
		logger.Errorf(ctx, "no usable capture device")
		return
	}
	format, _ := recorder.Format()
	logger.Infof(ctx, "recording %s from %s for %s", format, recorder.Backend.Kind(), *duration)

	logger.Tracef(ctx, "recorder.StartRecording")
	err := recorder.StartRecording(ctx)
	logger.Tracef(ctx, "/recorder.StartRecording: %v", err)
	assertNoError(err)

	time.Sleep(*duration)

	logger.Tracef(ctx, "recorder.StopRecording")
	buf, err := recorder.StopRecording(ctx)
	logger.Tracef(ctx, "/recorder.StopRecording: %v", err)
	assertNoError(err)

	header, err := wav.ParseHeader(buf)
	assertNoError(err)
	logger.Infof(ctx, "recorded %s of audio", header.Duration())

	wc := datacounter.NewWriterCounter(os.Stdout)
	_, err = wc.Write(buf)
	assertNoError(err)
	logger.Debugf(ctx, "written: %d", wc.Count())
}

func assertNoError(err error) {
	if err != nil {
		panic(err)
	}
}
