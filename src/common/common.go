package common

import (
	"travleap/src/lib"

	awslib "travleap/src/lib/aws"
)

func SQSConsumers() {
	go HoldsToExpireConsumer()
	go PointBalanceSyncConsumer()
	go EmailsToSendConsumer()
}

func SNSSubscribes() {
	holdsToExpire := awslib.NewSNSSubscriber("HoldsToExpire")
	holdsToExpire.Subscribe("sqs", lib.GetQueueArn("HoldsToExpire"))
	pointBalanceSync := awslib.NewSNSSubscriber("PointBalanceSync")
	pointBalanceSync.Subscribe("sqs", lib.GetQueueArn("PointBalanceSync"))
}
