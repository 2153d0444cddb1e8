package queue

// Handler receives the hooks the reconnect loop drives.
type Handler interface {
	// ManageDisconnections is signalled once the retry ceiling is reached,
	// typically to power off peripherals.
	ManageDisconnections()

	// ManageQueueSubscription runs after every fresh session to subscribe topics.
	ManageQueueSubscription()

	// ManageHardwareButton runs on every reconnect iteration so buttons stay responsive.
	ManageHardwareButton()
}

// HandlerFuncs adapts plain functions to Handler. Nil functions are no-ops.
type HandlerFuncs struct {
	Disconnections    func()
	QueueSubscription func()
	HardwareButton    func()
}

func (h HandlerFuncs) ManageDisconnections() {
	if h.Disconnections != nil {
		h.Disconnections()
	}
}

func (h HandlerFuncs) ManageQueueSubscription() {
	if h.QueueSubscription != nil {
		h.QueueSubscription()
	}
}

func (h HandlerFuncs) ManageHardwareButton() {
	if h.HardwareButton != nil {
		h.HardwareButton()
	}
}
