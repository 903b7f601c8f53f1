package ratelimit_test

import (
	"fmt"
	"time"

	"mercator-hq/rhythm/pkg/ratelimit"
)

func ExampleRateLimiter_Request() {
	limiter, err := ratelimit.New[string](ratelimit.Config{
		Capacity:       3,
		RefillRate:     1,
		RefillInterval: time.Minute,
	})
	if err != nil {
		panic(err)
	}

	for i := 0; i < 4; i++ {
		fmt.Println(limiter.Request("12.34.56.78"))
	}
	// Output:
	// true
	// true
	// true
	// false
}

func ExampleRateLimiter_SetVIP() {
	limiter, err := ratelimit.New[string](ratelimit.Config{
		Capacity:       2,
		RefillRate:     1,
		RefillInterval: time.Minute,
	})
	if err != nil {
		panic(err)
	}

	if err := limiter.SetVIP("partner", 5, 5); err != nil {
		panic(err)
	}

	admitted := 0
	for limiter.Request("partner") {
		admitted++
	}
	fmt.Println("partner admitted:", admitted)

	err = limiter.SetVIP("partner", 0, 5)
	fmt.Println(err)
	// Output:
	// partner admitted: 5
	// invalid capacity 0: capacity must be positive
}
