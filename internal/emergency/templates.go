package emergency

// Fixed responses. Every Generate result is exactly one of these.
const (
	GasLeakTemplate = `If you can smell gas, treat it as an emergency:
1. Do not operate electrical switches or use naked flames.
2. Turn off the gas supply at the meter (emergency control valve).
3. Open doors and windows.
4. Leave the property and call the National Gas Emergency Service on 0800 111 999.
Do not return until the supply has been made safe.`

	CarbonMonoxideTemplate = `Suspected carbon monoxide is an emergency:
1. Switch off the boiler and any gas appliances if it is safe to do so.
2. Open doors and windows and get everyone outside into fresh air.
3. Call the National Gas Emergency Service on 0800 111 999.
4. Seek medical advice if anyone has headaches, dizziness, nausea or breathlessness.
Do not use the appliance again until a Gas Safe registered engineer has inspected it.`

	CertificationTemplate = `Work on gas appliances must only be carried out by a Gas Safe registered engineer.
Please do not open the boiler casing or adjust gas components without registration.
You can check an engineer's registration at gassaferegister.co.uk or on 0800 408 5500.`

	NeedMoreInfoTemplate = `I need a little more information to help diagnose this safely:
1. The boiler make and model (usually on the front panel or the data badge).
2. Whether it is a combi, system or regular (heat only) boiler.
3. What it is doing, for example no hot water, no heating or a fault code on the display.`

	CombiHotWaterTemplate = `For a combi boiler with no hot water but working heating:
1. Check the system pressure is between 1 and 1.5 bar when cold.
2. Run a hot tap fully; a low flow rate may not trigger the flow sensor.
3. The diverter valve may be sticking in the heating position.
4. The DHW flow sensor or plate heat exchanger may need attention from a Gas Safe engineer.`

	SystemHotWaterTemplate = `For a system boiler with no hot water:
1. Check the programmer has hot water switched on.
2. Check the cylinder thermostat is set to around 60C.
3. The motorised zone valve for hot water may have failed to open.
4. A Gas Safe engineer can test the valve actuator and wiring centre.`

	RegularHotWaterTemplate = `For a regular (heat only) boiler with no hot water:
1. Check the programmer and the cylinder thermostat settings.
2. Check the feed and expansion tank in the loft has water and the ball valve moves freely.
3. The motorised valve or the circulation pump may have failed.
4. A Gas Safe engineer can confirm which component needs replacing.`

	UnknownFaultCodeTemplate = `I don't recognise that fault code for this boiler.
1. Note the exact code and any flashing lights.
2. Try a single reset using the reset button, waiting a few minutes before retrying.
3. Check the manufacturer's manual, which lists fault codes in the troubleshooting section.
4. If the fault returns, contact a Gas Safe registered engineer.`

	DefaultTemplate = `This looks like a complex issue that needs systematic diagnosis.
1. Check the gas supply, power, system pressure and isolation valves are all correct.
2. Note any fault codes, noises or lights on the boiler.
3. Try one reset and observe what the boiler does during ignition.
4. If it still fails, book a Gas Safe registered engineer with those details.`
)
