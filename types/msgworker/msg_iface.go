package msgworker

type WorkerMessage interface {
	WMsgType() WorkerMessageType
}

func (m *Identify) WMsgType() WorkerMessageType {
	return IdentifyType
}
func (m *QueryBestSplit) WMsgType() WorkerMessageType {
	return QueryBestSplitType
}
func (m *AssignTask) WMsgType() WorkerMessageType {
	return AssignTaskType
}
func (m *AddFeature) WMsgType() WorkerMessageType {
	return AddFeatureType
}
func (m *FinishSetup) WMsgType() WorkerMessageType {
	return FinishSetupType
}
func (m *DropTask) WMsgType() WorkerMessageType {
	return DropTaskType
}

func (m *Identified) WMsgType() WorkerMessageType {
	return IdentifiedType
}
func (m *BestSplitResult) WMsgType() WorkerMessageType {
	return BestSplitResultType
}
func (m *TaskAck) WMsgType() WorkerMessageType {
	return TaskAckType
}
func (m *TaskRejected) WMsgType() WorkerMessageType {
	return TaskRejectedType
}
