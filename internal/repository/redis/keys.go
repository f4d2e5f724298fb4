package redis

import "fmt"

const ns = "fitslot:v1"

func KeyClassList() string {
	return ns + ":classes:list"
}

func KeyIdemBooking(idemKey string) string {
	return fmt.Sprintf("%s:idem:book:%s", ns, idemKey)
}

func RateLimitPrefix(scope string) string {
	return fmt.Sprintf("%s:rl:%s", ns, scope)
}
