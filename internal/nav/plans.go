package nav

// plans is the lookahead dispatch table. Offsets are listed in ranking order
// (earlier wins ties); each action list is tried strictly in order.
var plans = [16]plan{
	{dx: 0, dy: 2, actions: []action{
		step(hN), step(hNNE), step(hNNW), ride, leap(0, 0), leap(-1, 0), leap(1, 0), step(hNE),
		step(hNW), step(hENE), step(hWNW), step(hE), step(hW), step(hESE), step(hWSW), step(hSE),
		step(hSW), step(hSSE), step(hSSW), step(hS),
	}},
	{dx: 1, dy: 2, actions: []action{
		step(hNNE), step(hN), step(hNE), ride, leap(0, 0), leap(-1, 0), leap(1, 0), step(hENE),
		step(hNNW), step(hE), step(hNW), step(hESE), step(hWNW), step(hSE), step(hW), step(hSSE),
		step(hWSW), step(hS), step(hSW), step(hSSW),
	}},
	{dx: 2, dy: 2, actions: []action{
		step(hNE), step(hENE), step(hNNE), ride, leap(0, 0), leap(-1, 0), leap(0, -1),
		step(hE), step(hN), step(hESE), step(hNNW), step(hSE), step(hNW), step(hSSE), step(hWNW),
		step(hS), step(hW), step(hSSW), step(hWSW), step(hSW),
	}},
	{dx: 2, dy: 1, actions: []action{
		step(hENE), step(hNE), step(hE), ride, leap(0, 0), leap(0, 1), leap(0, -1), step(hESE),
		step(hNNE), step(hSE), step(hN), step(hSSE), step(hNNW), step(hS), step(hNW), step(hSSW),
		step(hWNW), step(hSW), step(hW), step(hWSW),
	}},
	{dx: 2, dy: 0, actions: []action{
		step(hE), step(hESE), step(hENE), ride, leap(0, 0), leap(0, 1), leap(0, -1), step(hSE),
		step(hNE), step(hSSE), step(hNNE), step(hS), step(hN), step(hSSW), step(hNNW), step(hSW),
		step(hNW), step(hWSW), step(hWNW), step(hW),
	}},
	{dx: 2, dy: -1, actions: []action{
		step(hESE), step(hE), step(hSE), ride, leap(0, 0), leap(0, 1), leap(0, -1), step(hSSE),
		step(hENE), step(hS), step(hNE), step(hSSW), step(hNNE), step(hSW), step(hN), step(hWSW),
		step(hNNW), step(hW), step(hNW), step(hWNW),
	}},
	{dx: 2, dy: -2, actions: []action{
		step(hSE), step(hSSE), step(hESE), ride, leap(0, 0), leap(0, 1), leap(-1, 0), step(hS),
		step(hE), step(hSSW), step(hENE), step(hSW), step(hNE), step(hWSW), step(hNNE), step(hW),
		step(hN), step(hWNW), step(hNNW), step(hNW),
	}},
	{dx: 1, dy: -2, actions: []action{
		step(hSSE), step(hSE), step(hS), ride, leap(0, 0), leap(1, 0), leap(-1, 0), step(hSSW),
		step(hESE), step(hSW), step(hE), step(hWSW), step(hENE), step(hW), step(hNE), step(hWNW),
		step(hNNE), step(hNW), step(hN), step(hNNW),
	}},
	{dx: 0, dy: -2, actions: []action{
		step(hS), step(hSSW), step(hSSE), ride, leap(0, 0), leap(1, 0), leap(-1, 0), step(hSW),
		step(hSE), step(hWSW), step(hESE), step(hW), step(hE), step(hWNW), step(hENE), step(hNW),
		step(hNE), step(hNNW), step(hNNE), step(hN),
	}},
	{dx: -1, dy: -2, actions: []action{
		step(hSSW), step(hS), step(hSW), ride, leap(0, 0), leap(1, 0), leap(-1, 0), step(hWSW),
		step(hSSE), step(hW), step(hSE), step(hWNW), step(hESE), step(hNW), step(hE), step(hNNW),
		step(hENE), step(hN), step(hNE), step(hNNE),
	}},
	{dx: -2, dy: -2, actions: []action{
		step(hSW), step(hWSW), step(hSSW), ride, leap(0, 0), leap(0, 1), leap(1, 0), step(hW),
		step(hS), step(hWNW), step(hSSE), step(hNW), step(hSE), step(hNNW), step(hESE), step(hN),
		step(hE), step(hNNE), step(hENE), step(hNE),
	}},
	{dx: -2, dy: -1, actions: []action{
		step(hWSW), step(hSW), step(hW), ride, leap(0, 0), leap(0, 1), leap(0, -1), step(hWNW),
		step(hSSW), step(hNW), step(hS), step(hNNW), step(hSSE), step(hN), step(hSE), step(hNNE),
		step(hESE), step(hNE), step(hE), step(hENE),
	}},
	{dx: -2, dy: 0, actions: []action{
		step(hW), step(hWNW), step(hWSW), ride, leap(0, 0), leap(0, 1), leap(0, -1), step(hNW),
		step(hSW), step(hNNW), step(hSSW), step(hN), step(hS), step(hNNE), step(hSSE), step(hNE),
		step(hSE), step(hENE), step(hESE), step(hE),
	}},
	{dx: -2, dy: 1, actions: []action{
		step(hWNW), step(hW), step(hNW), ride, leap(0, 0), leap(0, 1), leap(0, -1), step(hNNW),
		step(hWSW), step(hN), step(hSW), step(hNNE), step(hSSW), step(hNE), step(hS), step(hENE),
		step(hSSE), step(hE), step(hSE), step(hESE),
	}},
	{dx: -2, dy: 2, actions: []action{
		step(hNW), step(hNNW), step(hWNW), ride, leap(0, 0), leap(1, 0), leap(0, -1), step(hN),
		step(hW), step(hNNE), step(hWSW), step(hNE), step(hSW), step(hENE), step(hSSW), step(hE),
		step(hS), step(hESE), step(hSSE), step(hSE),
	}},
	{dx: -1, dy: 2, actions: []action{
		step(hNNW), step(hNW), step(hN), ride, leap(0, 0), leap(1, 0), leap(-1, 0), step(hNNE),
		step(hWNW), step(hNE), step(hW), step(hENE), step(hWSW), step(hE), step(hSW), step(hESE),
		step(hSSW), step(hSE), step(hS), step(hSSE),
	}},
}
