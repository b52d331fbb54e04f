package eventbus

func (bus *EventBus) PublishNotificationPublished(p NotificationPublishedPayload) {
	bus.send(EventNotificationPublished, p)
}

func (bus *EventBus) SubscribeNotificationPublished(fn func(NotificationPublishedPayload)) {
	bus.SubscribeAny(EventNotificationPublished, func(p any) { fn(p.(NotificationPublishedPayload)) })
}

func (bus *EventBus) PublishReminderFired(p ReminderFiredPayload) {
	bus.send(EventReminderFired, p)
}

func (bus *EventBus) SubscribeReminderFired(fn func(ReminderFiredPayload)) {
	bus.SubscribeAny(EventReminderFired, func(p any) { fn(p.(ReminderFiredPayload)) })
}

func (bus *EventBus) PublishSeriesEnded(p SeriesEndedPayload) {
	bus.send(EventSeriesEnded, p)
}

func (bus *EventBus) SubscribeSeriesEnded(fn func(SeriesEndedPayload)) {
	bus.SubscribeAny(EventSeriesEnded, func(p any) { fn(p.(SeriesEndedPayload)) })
}

func (bus *EventBus) PublishTaskCreated(p TaskCreatedPayload) {
	bus.send(EventTaskCreated, p)
}

func (bus *EventBus) SubscribeTaskCreated(fn func(TaskCreatedPayload)) {
	bus.SubscribeAny(EventTaskCreated, func(p any) { fn(p.(TaskCreatedPayload)) })
}

func (bus *EventBus) PublishTaskSaved(p TaskSavedPayload) {
	bus.send(EventTaskSaved, p)
}

func (bus *EventBus) SubscribeTaskSaved(fn func(TaskSavedPayload)) {
	bus.SubscribeAny(EventTaskSaved, func(p any) { fn(p.(TaskSavedPayload)) })
}
