package kajak

type Commands struct {
	scene *Scene
}

func (cmd *Commands) AddResources(resources ...any) *Commands {
	cmd.scene.addResources(resources...)
	return cmd
}

func (cmd *Commands) UseSystem(system systemScheduleBuilder) *Commands {
	cmd.scene.UseSystem(system)
	return cmd
}

// Spawn queues an entity for registration at the end of the current stage.
// The id is reserved immediately so interactions can refer to it.
func (cmd *Commands) Spawn(e *Entity) EntityID {
	e.ID = cmd.scene.reserveID()
	cmd.scene.pendingAdditions = append(cmd.scene.pendingAdditions, e)
	return e.ID
}

// Remove queues an entity for removal at the end of the current stage.
func (cmd *Commands) Remove(id EntityID) {
	cmd.scene.pendingRemovals = append(cmd.scene.pendingRemovals, id)
}

func (cmd *Commands) Scene() *Scene {
	return cmd.scene
}
