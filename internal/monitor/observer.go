package monitor

// Observer receives every dashboard state change. Callbacks run while the
// dashboard lock is held and must not block.
type Observer interface {
	OnDeviceAdded(d Device)
	OnDeviceRemoved(id string)
	OnAlertOpened(d Device)
	OnAlertClosed()
	OnConnectionCountChanged(n int)
	OnSpeedSample(downloadMbps, uploadMbps float64)
	OnLogAppended(e LogEntry)
	OnNetworkActivity(activity map[DeviceType]bool)
}

// NopObserver ignores every callback. Embed it to implement a subset.
type NopObserver struct{}

func (NopObserver) OnDeviceAdded(Device) {}
func (NopObserver) OnDeviceRemoved(string) {}
func (NopObserver) OnAlertOpened(Device) {}
func (NopObserver) OnAlertClosed() {}
func (NopObserver) OnConnectionCountChanged(int) {}
func (NopObserver) OnSpeedSample(float64, float64) {}
func (NopObserver) OnLogAppended(LogEntry) {}
func (NopObserver) OnNetworkActivity(map[DeviceType]bool) {}
