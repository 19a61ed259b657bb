package core

import glog "github.com/goliatone/go-logger/glog"

var (
	_ ConnectionService = (*Client)(nil)
	_ MetricsRecorder   = NopMetricsRecorder{}
	_ InputSource       = Input{}
	_ InputSource       = RawInput{}
	_ ConfigProvider    = (*CfgxConfigProvider)(nil)
	_ OptionsResolver   = GoOptionsResolver{}

	_ Logger         = glog.Nop()
	_ LoggerProvider = glog.ProviderFromLogger(glog.Nop())
)
