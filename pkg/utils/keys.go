package utils

import "fmt"

func MetricsKey(name string) string {
	return fmt.Sprintf("trench_radar:metrics:%s", name)
}

func RateWindowKey(name string, windowStart int64) string {
	return fmt.Sprintf("trench_radar:rate:%s:%d", name, windowStart)
}

func DailyCounterKey(name, day string) string {
	return fmt.Sprintf("trench_radar:daily:%s:%s", name, day)
}

func TokenRecordKey(tokenAddress string) string {
	return fmt.Sprintf("trench_radar:token:%s", tokenAddress)
}

func WalletReportKey(walletAddress string) string {
	return fmt.Sprintf("trench_radar:wallet_report:%s", walletAddress)
}

func AlertLagSamplesKey() string {
	return "trench_radar:alert_lag:samples"
}
