package event

// MaxParams 单个注册最多携带的静态参数个数
const MaxParams = 4

// Registration 一次订阅：监听器、静态参数、以及来自持久化配置时的外部ID。
// 代码里直接注册的监听器 ExternalID 为 nil，它们不会被 Unregister 移除。
type Registration struct {
	Consumer   Consumer
	Params     []string
	ExternalID *uint64
}

// NormalizeParams 截断到第一个空串，最多保留 MaxParams 个。
// 持久化行里的 param1..param4 以空值结束，这里保持同样的语义。
func NormalizeParams(params ...string) []string {
	var out []string
	for _, p := range params {
		if p == "" || len(out) == MaxParams {
			break
		}
		out = append(out, p)
	}
	return out
}

// ExternalID 便于构造 Registration.ExternalID
func ExternalID(id uint64) *uint64 {
	return &id
}
