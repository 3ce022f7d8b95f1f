package utils

func ArrayReduce[T any](array []T, callback func(T, T) T, initialValue ...T) T {
	var result T
	initialized := false
	if len(initialValue) > 0 {
		result = initialValue[0]
		initialized = true
	}
	for _, v := range array {
		if !initialized {
			result = v
			initialized = true
			continue
		}
		result = callback(result, v)
	}
	return result
}
