package main

// background runs fn on its own goroutine, recovering panics so a failing
// side task (like the welcome email) can never take a request down with it.
func (app *application) background(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				app.logger.Errorw("background task panicked", "panic", r)
			}
		}()
		fn()
	}()
}
