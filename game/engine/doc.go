// Package engine provides the vehicle behaviour core of the Smart Road
// intersection simulator.
//
// A World owns the active vehicles of one unsignalised four-way intersection
// and advances them one frame at a time. Each call to Tick runs a fixed
// pipeline of stages over the vehicles in insertion order:
//
//  1. Arbiter: recomputes every vehicle's waiting flag from the right-of-way
//     table and the congestion cap of the core intersection. Left turners
//     are admitted one at a time.
//  2. Radar/Speed: casts the sensing rectangle ahead of the vehicle, clips it
//     to the nearest obstruction and picks a speed tier from the gap.
//  3. Turn: at the trigger line of its lane a turning vehicle snaps into the
//     exit lane if the destination rectangle is clear.
//  4. Deadlock breaker: two stopped, perpendicular vehicles past the approach
//     are separated by nudging the lower-indexed one back one unit.
//  5. Movement: each vehicle advances by its speed unless the move would
//     overlap another vehicle.
//  6. Lifecycle: vehicles close to their destination are retired and their
//     trip duration is reported.
//
// Every stage reads a value snapshot of the vehicles taken when the stage
// starts and writes only to the live vehicle it is processing. Metrics are
// reported through a MetricsSink passed in by the caller.
//
// Usage:
//
//	cfg := engine.DefaultConfig()
//	world, err := engine.NewWorld(cfg, engine.WithSeed(42), engine.WithMetrics(collector))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	world.Spawn(engine.BehaviorRU)
//	for i := 0; i < 600; i++ {
//		world.Tick()
//	}
//	for _, v := range world.Vehicles() {
//		fmt.Println(v.ID, v.Behavior, v.Body)
//	}
//
// Lane geometry:
//
// The window is divided into fourteen lane spacings. Rows 4-6 carry
// westbound traffic, rows 7-9 eastbound, columns 4-6 southbound and
// columns 7-9 northbound. The core intersection spans rows and columns 4-9.
// A behaviour code names the entry side (first letter) and exit direction
// (second letter): RU enters from the right travelling West and leaves
// towards the top.
package engine
